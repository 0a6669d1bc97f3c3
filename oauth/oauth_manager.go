package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/playstats/playstats/pkg/apperr"
	"go.uber.org/zap"
)

// DashboardPath is where callbacks land, successful or not.
const DashboardPath = "/dashboard"

// manages multiple oauth client services
type OAuthServiceManager struct {
	services    map[string]AuthService
	connections ConnectionRecorder
	logger      *zap.Logger
	mu          sync.RWMutex
}

func NewOAuthServiceManager(connections ConnectionRecorder, logger *zap.Logger) *OAuthServiceManager {
	return &OAuthServiceManager{
		services:    make(map[string]AuthService),
		connections: connections,
		logger:      logger,
	}
}

// registers any service that impls AuthService
func (m *OAuthServiceManager) RegisterService(name string, service AuthService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[name] = service
	m.logger.Info("registered auth service", zap.String("service", name))
}

// get an AuthService by registered name
func (m *OAuthServiceManager) GetService(name string) (AuthService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	service, exists := m.services[name]
	return service, exists
}

func (m *OAuthServiceManager) HandleLogin(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service, exists := m.GetService(serviceName)
		if exists {
			service.HandleLogin(w, r)
			return
		}

		m.logger.Warn("auth service not found for login request", zap.String("service", serviceName))
		http.Error(w, fmt.Sprintf("Auth service '%s' not found", serviceName), http.StatusNotFound)
	}
}

func (m *OAuthServiceManager) HandleCallback(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service, exists := m.GetService(serviceName)
		if !exists {
			m.logger.Warn("auth service not found for callback request", zap.String("service", serviceName))
			http.Error(w, fmt.Sprintf("OAuth service '%s' not found", serviceName), http.StatusNotFound)
			return
		}

		if _, err := service.HandleCallback(w, r); err != nil {
			code := CallbackErrorCode(err)
			m.logger.Warn("oauth callback failed",
				zap.String("service", serviceName),
				zap.String("code", code),
				zap.Error(err))
			redirectWithError(w, r, code)
			return
		}

		if m.connections != nil {
			if err := m.connections.MarkConnected(r.Context(), serviceName); err != nil {
				m.logger.Error("recording service connection",
					zap.String("service", serviceName), zap.Error(err))
			}
		}

		m.logger.Info("oauth callback succeeded", zap.String("service", serviceName))
		http.Redirect(w, r, DashboardPath+"?"+serviceName+"_connected=true", http.StatusSeeOther)
	}
}

// CallbackErrorCode is the query-string code for a failed callback. Errors
// reported by the provider keep the provider's own code.
func CallbackErrorCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return apperr.ErrorCode(err)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	q := url.Values{}
	q.Set("error", code)
	http.Redirect(w, r, DashboardPath+"?"+q.Encode(), http.StatusSeeOther)
}
