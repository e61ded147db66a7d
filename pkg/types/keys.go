package types

// Reserved host store keys.
const (
	KeyItems         = "daybook-items"
	KeySettings      = "daybook-settings"
	KeyMetadata      = "daybook-storage-meta"
	KeyRelationalDB  = "daybook-sqlite-db"
	KeyAuthDB        = "daybook-auth-db"
	KeyProbeSentinel = "daybook-probe"
)

// ReservedKeys lists every key the storage core writes, in a stable order.
var ReservedKeys = []string{
	KeyItems,
	KeySettings,
	KeyMetadata,
	KeyRelationalDB,
	KeyAuthDB,
}
