package cache

import "strings"

type KeyPrefix string

const (
	PrefixURL KeyPrefix = "url" // url:<shortCode>
)

// KeyBuilder builds cache keys, optionally scoped by a namespace so several
// deployments can share one Redis database.
type KeyBuilder struct {
	namespace string
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: strings.Trim(namespace, ":")}
}

func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// URL is the key of the cached record header for a short code.
func (k *KeyBuilder) URL(shortCode string) string {
	return k.Build(PrefixURL, shortCode)
}
