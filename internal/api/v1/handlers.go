package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/plancache"
)

// APIServer implements the ServerInterface
type APIServer struct {
	plans      *plancache.Cache
	identities *identity.Cache
}

// NewAPIServer creates a new API server instance
func NewAPIServer(plans *plancache.Cache, identities *identity.Cache) *APIServer {
	return &APIServer{
		plans:      plans,
		identities: identities,
	}
}

// Pong is the ping response payload
type Pong struct {
	Ping string `json:"ping"`
}

// PlanResponse is the public view of one subscription tier
type PlanResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Price       float64              `json:"price"`
	TrialDays   int                  `json:"trial_days"`
	IsPopular   bool                 `json:"is_popular"`
	Description string               `json:"description"`
	Options     []PlanOptionResponse `json:"options"`
}

// PlanOptionResponse is one named feature value of a plan
type PlanOptionResponse struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ProfileResponse is the authenticated tenant's own account view
type ProfileResponse struct {
	ID              uint   `json:"id"`
	Email           string `json:"email"`
	ShopDomain      string `json:"shop_domain"`
	ShopConnected   bool   `json:"shop_connected"`
	BillingAttached bool   `json:"billing_attached"`
	PlanID          *uint  `json:"plan_id"`
	IsAdmin         bool   `json:"is_admin"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetPlans returns the public plan catalog. Dev plans are never listed.
func (s *APIServer) GetPlans(c *fiber.Ctx) error {
	plans, err := s.plans.AllPlans(false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "plan catalog unavailable",
		})
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		pr := PlanResponse{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			TrialDays:   p.TrialDays,
			IsPopular:   p.IsPopular,
			Description: p.Description,
			Options:     make([]PlanOptionResponse, 0, len(p.Options)),
		}
		for _, o := range p.Options {
			pr.Options = append(pr.Options, PlanOptionResponse{
				Name:        o.Name,
				Value:       o.Value,
				Description: o.Description,
			})
		}
		out = append(out, pr)
	}

	return c.JSON(out)
}

// GetProfile returns account information for the authenticated user.
// Security is enforced via session auth middleware attached in the router.
func (s *APIServer) GetProfile(c *fiber.Ctx) error {
	user, err := s.identities.CurrentUser(c, false)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "identity lookup failed",
		})
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}

	return c.JSON(ProfileResponse{
		ID:              user.ID,
		Email:           user.Email,
		ShopDomain:      user.ShopDomain,
		ShopConnected:   user.ShopIsConnected(),
		BillingAttached: user.BillingIsConnected(),
		PlanID:          user.PlanID,
		IsAdmin:         user.IsAdmin,
	})
}

// RegisterHandlers attaches the v1 routes to the given router group.
// Auth middleware for protected routes is supplied by the caller.
func RegisterHandlers(router fiber.Router, s *APIServer, sessionAuth fiber.Handler) {
	router.Get("/ping", s.GetPing)
	router.Get("/plans", s.GetPlans)
	router.Get("/me", sessionAuth, s.GetProfile)
}
