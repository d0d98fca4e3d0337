package registry

import (
	"fmt"
	"sort"

	"blog_api/internal/pkg/config"
	"blog_api/internal/pkg/uploader"
	"blog_api/internal/pkg/worker"
	"blog_api/pkg/cache"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Engine *gin.Engine      // 根路由，挂载 /healthz、/metrics
	Router *gin.RouterGroup // 业务路由，前缀 /api
	Config *config.Config

	Tokens   security.TokenService
	Hasher   security.PasswordHasher
	Cache    cache.CacheService
	Metrics  *metrics.MetricsCollector
	Uploader uploader.Uploader // 未配置 OSS 时为 nil
	Jobs     *worker.Pool      // 后台任务，如缓存清理
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块，重复注册同名模块会 panic
func Register(module Module) {
	if _, exists := moduleRegistry[module.Name()]; exists {
		panic(fmt.Sprintf("registry: module %q registered twice", module.Name()))
	}
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// sortedModules 按优先级排序，同优先级按名称
func sortedModules() []Module {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})
	return modules
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	for _, module := range sortedModules() {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}
	return nil
}
