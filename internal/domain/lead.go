package domain

import (
	"errors"
	"time"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrRouteNotFound = errors.New("route not found")
)

// Route groups the leads and cash accounts of one collection territory.
type Route struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Lead is the field agent who disburses loans and collects weekly payments
// for a set of borrowers.
type Lead struct {
	ID        int32     `json:"id"`
	RouteID   int32     `json:"routeId"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
}

type LeadRepository interface {
	GetByID(id int32) (*Lead, error)
}
