package request

// ByIDRequest binds an :id path parameter that must be a UUID.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
