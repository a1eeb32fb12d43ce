package interfaces

import "github.com/Derthenier/Akhanda-sub004/internal/models"

// ShaderService is the primary programmatic surface of the subsystem,
// implemented by the shader manager.
type ShaderService interface {
	CompileShader(request models.CompileRequest) (*models.Shader, error)
	CompileShaderAsync(request models.CompileRequest, callback func(models.CompileResult)) (string, error)
	CreateShaderProgram(name string, shaders []*models.Shader) (*models.ShaderProgram, error)
	GetShader(name string, variant models.ShaderVariant) (*models.Shader, error)
	GetShaderProgram(name string) (*models.ShaderProgram, error)
	UnloadShader(name string, variant models.ShaderVariant) error
	UnloadAllShaders()
	ForceRecompileShader(name string, variant models.ShaderVariant) error
	ForceRecompileProgram(name string) error
	ForceRecompileAll() []models.CompileResult
	FlushAsyncOperations()
	Stats() models.CompileStats
}

// CompileScheduler queues compile requests onto a fixed worker pool.
type CompileScheduler interface {
	Submit(request models.CompileRequest, callback func(models.CompileResult)) (string, error)
	Flush()
	Pending() int
	Stop()
}
