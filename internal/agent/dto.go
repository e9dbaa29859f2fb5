package agent

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Title           string `json:"title"`
	Agency          string `json:"agency"`
	CostCenter      string `json:"costCenter"`
	CostCenterGroup string `json:"costCenterGroup"`
	IsAdmin         bool   `json:"isAdmin"`
	Password        string `json:"password"`
}

// CreateResponse carries the generated password when none was supplied.
type CreateResponse struct {
	Agent             *Agent `json:"agent"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}
