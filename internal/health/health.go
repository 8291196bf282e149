package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailhub/backend/internal/storage"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health   healthcheck.Handler
	accounts storage.AccountRepository
	logger   *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(accounts storage.AccountRepository, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health:   healthcheck.NewHandler(),
		accounts: accounts,
		logger:   logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 账号注册表存储检查
	hc.health.AddLivenessCheck("registry", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hc.accounts.Health(ctx)
	})

	// goroutine 泄漏检查
	hc.health.AddReadinessCheck("goroutines", healthcheck.GoroutineCountCheck(500))
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// LiveEndpoint 存活检查端点
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查端点
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := hc.accounts.Health(ctx); err != nil {
		results["registry"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["registry"] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
