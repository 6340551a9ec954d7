package handler

type ContextKey string

var (
	RoleCtxKey  ContextKey = "role"
	SubCtxKey   ContextKey = "sub"
	MyInfoCtx   ContextKey = "myInfo"
	UserInfoCtx ContextKey = "userInfo"
	SessionCtx  ContextKey = "session"
	ShiftCtx    ContextKey = "shift"
	TACtx       ContextKey = "ta"
)
