package rbac

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"github.com/Abhinav7558/employee-management-system/internal/domain"
	"github.com/Abhinav7558/employee-management-system/internal/rbac/infra"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

var (
	//go:embed policy/model.conf
	modelText string
	//go:embed policy/policy.csv
	policyText string
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
	Roles() ([]domain.RoleResponse, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewService loads the built-in role policy.
func NewService(logger ...*zap.Logger) (Service, error) {
	e, err := infra.NewEnforcer(modelText, policyText)
	if err != nil {
		return nil, err
	}
	return NewServiceWithEnforcer(e, logger...), nil
}

func NewServiceWithEnforcer(enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{enforcer: enforcer, logger: l}
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

// Roles lists every role with its direct parents and effective permissions.
func (s *service) Roles() ([]domain.RoleResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]struct{})
	policies, err := s.enforcer.GetPolicy()
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		names[p[0]] = struct{}{}
	}
	groupings, err := s.enforcer.GetGroupingPolicy()
	if err != nil {
		return nil, err
	}
	for _, g := range groupings {
		names[g[0]] = struct{}{}
		names[g[1]] = struct{}{}
	}

	out := make([]domain.RoleResponse, 0, len(names))
	for name := range names {
		parents, err := s.enforcer.GetRolesForUser(name)
		if err != nil {
			return nil, err
		}
		perms, err := s.enforcer.GetImplicitPermissionsForUser(name)
		if err != nil {
			return nil, err
		}

		flat := make([]string, 0, len(perms))
		for _, p := range perms {
			flat = append(flat, strings.Join(p[1:], ":"))
		}
		sort.Strings(parents)
		sort.Strings(flat)
		out = append(out, domain.RoleResponse{Name: name, Inherits: parents, Permissions: flat})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
