package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init inicializa el logger singleton con la configuración dada.
// Es idempotente: solo la primera llamada tiene efecto. Lo llama main
// antes de construir el resto del servidor.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea un logger por defecto (dev, info);
// los tests dependen de esto para loguear sin bootstrap.
func L() *zap.Logger {
	if instance == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return instance
}

// Named retorna un logger con nombre de componente ("oidc.initiator",
// "jwks", "http.handlers"). El nombre identifica el origen en los logs.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna un logger con campos persistentes, p.ej. el request_id
// que inyecta el middleware.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushea cualquier buffer pendiente. main lo difiere al salir.
func Sync() error {
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
