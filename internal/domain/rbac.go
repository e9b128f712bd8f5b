package domain

type EnforceRequest struct {
	Role     string `json:"-"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type RoleResponse struct {
	Name        string   `json:"name"`
	Inherits    []string `json:"inherits"`
	Permissions []string `json:"permissions"`
}
