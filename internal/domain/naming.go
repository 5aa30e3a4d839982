package domain

import (
	"strings"
	"sync"
)

// tableNames caches derived table names keyed by model type name
var tableNames sync.Map

// TableName returns the snake_case table name for a model type name.
//
// The name is split before every ASCII capital letter, empty fragments are
// dropped, and the lowercased fragments are joined with underscores:
//
//	UserAccount -> user_account
//	ABCItem     -> a_b_c_item
//	userAccount -> user_account
func TableName(modelName string) string {
	if cached, ok := tableNames.Load(modelName); ok {
		return cached.(string)
	}
	name := deriveTableName(modelName)
	tableNames.Store(modelName, name)
	return name
}

func deriveTableName(modelName string) string {
	var words []string
	var word strings.Builder

	for _, r := range modelName {
		if r >= 'A' && r <= 'Z' && word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
		word.WriteRune(r)
	}
	if word.Len() > 0 {
		words = append(words, word.String())
	}

	return strings.ToLower(strings.Join(words, "_"))
}
