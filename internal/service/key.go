package service

import (
	"strings"

	"github.com/google/uuid"
)

const keySeparator = "_"

// DeriveKey builds the storage key for a fresh upload:
// {owner_scope}_{token}_{display_name}. The token is a random UUID, so
// two uploads with the same scope and name never share a key. The scope
// is sanitized so it cannot swallow the separator; DeriveKey never fails.
func DeriveKey(ownerScope, displayName string) string {
	scope := strings.ReplaceAll(ownerScope, keySeparator, "-")
	return scope + keySeparator + uuid.NewString() + keySeparator + displayName
}

// joinKey rebuilds a key from already-validated segments, used by rename
// to keep scope and token while swapping the name.
func joinKey(ownerScope, token, displayName string) string {
	return ownerScope + keySeparator + token + keySeparator + displayName
}

// SplitKey parses a storage key back into scope, token and display name.
// Keys discovered outside the metadata store (bucket listings) may not be
// ours, so the token is checked to be a real UUID.
func SplitKey(storageKey string) (ownerScope, token, displayName string, err error) {
	parts := strings.SplitN(storageKey, keySeparator, 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", malformedKey(storageKey)
	}
	if _, parseErr := uuid.Parse(parts[1]); parseErr != nil {
		return "", "", "", malformedKey(storageKey)
	}
	return parts[0], parts[1], parts[2], nil
}
