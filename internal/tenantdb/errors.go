package tenantdb

import "errors"

// Error kinds surfaced by the routing subsystem. Handlers translate these
// into HTTP statuses; nothing below this layer retries automatically beyond
// the single provisioning retry documented on Provisioner.
var (
	// ErrTenantNotFound: the tenant id has no registry entry. 404-equivalent.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantUnreachable: the registry entry exists but the tenant's
	// database could not be reached or probed. 503-equivalent; callers may
	// retry later. Failed attempts are never cached.
	ErrTenantUnreachable = errors.New("tenant database unreachable")
	// ErrProvisioning: database or schema creation failed after the one
	// automatic retry. The tenant may be registered but incomplete; the
	// recovery path is EnsureSchema, not rollback. 500-equivalent.
	ErrProvisioning = errors.New("tenant provisioning failed")
	// ErrStorageExists: the derived database name already exists on the
	// engine. Internal to the provisioner's retry logic.
	ErrStorageExists = errors.New("storage identifier already exists")
)
