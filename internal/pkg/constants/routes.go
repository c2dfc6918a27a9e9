package constants

// Static route constants
const (
	PublicRoute     = "/"
	LoginRoute      = "/login"
	LogoutRoute     = "/logout"
	DashboardRoute  = "/dashboard"
	ConnectRoute    = "/connect"
	ChoosePlanRoute = "/plans/choose"
	PlanDeniedRoute = "/plans/denied"
	AdminRoute      = "/admin"
)
