package jwttoken

import "fundgate/internal/platform/middleware"

// MiddlewareAdapter bridges the token service to the auth middleware without
// the middleware depending on this package.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{Address: claims.Address, Role: claims.Role}, nil
}
