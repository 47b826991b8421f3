package logger

import "go.uber.org/zap"

// New は環境ごとのzapロガーを作る。devは読みやすく、それ以外はJSON。
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
