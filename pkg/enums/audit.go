package enums

// AuditAction enumerates the events written to the audit stream.
type AuditAction string

const (
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionLogout           AuditAction = "LOGOUT"
	AuditActionPermissionDenied AuditAction = "PERMISSION_DENIED"
	AuditActionCreate           AuditAction = "CREATE"
	AuditActionUpdate           AuditAction = "UPDATE"
	AuditActionDelete           AuditAction = "DELETE"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// AuditStatus is the outcome attached to an audit event.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "SUCCESS"
	AuditStatusFailure AuditStatus = "FAILURE"
	AuditStatusDenied  AuditStatus = "DENIED"
)

// String implements fmt.Stringer.
func (s AuditStatus) String() string {
	return string(s)
}
