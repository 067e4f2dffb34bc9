package app

const TopicUserCreated = "user:created"
const TopicUserUpdated = "user:updated"
const TopicUserDeleted = "user:deleted"

const TopicAuthLogin = "auth:login"
const TopicAuthLogout = "auth:logout"

const TopicAuditLoginSuccess = "audit:login:success"
const TopicAuditLoginFailed = "audit:login:failed"
const TopicAuditLogout = "audit:logout"

const TopicAuditCriticalEntry = "audit:entry:critical"
