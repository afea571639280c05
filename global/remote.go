package global

import (
	"strings"

	"NeuroQ/global/config"
	"NeuroQ/logger"
	"NeuroQ/service/nacos"

	"go.uber.org/zap"
)

// RemoteSource is a config-center document; *nacos.Source implements it.
type RemoteSource interface {
	Fetch() (string, error)
	Watch(onChange func(data string)) error
}

func ConfigNacos(cfg config.Config) (*nacos.Source, error) {
	return nacos.NewSource(nacos.Config{
		Servers:   cfg.Nacos.Servers,
		Namespace: cfg.Nacos.Namespace,
		Group:     cfg.Nacos.Group,
		DataID:    cfg.Nacos.DataID,
		Username:  cfg.Nacos.Username,
		Password:  cfg.Nacos.Password,
	})
}

// ApplyRemote layers the remote document over cfg and keeps watching it.
// Only the log level follows live changes; everything else is read once
// at startup.
func ApplyRemote(cfg config.Config, src RemoteSource) (config.Config, error) {
	data, err := src.Fetch()
	if err != nil {
		return cfg, err
	}
	local := cfg
	if strings.TrimSpace(data) != "" {
		if cfg, err = local.Overlay([]byte(data)); err != nil {
			return local, err
		}
	}

	err = src.Watch(func(data string) {
		next, err := local.Overlay([]byte(data))
		if err != nil {
			logger.Warn("[nacos] ignore invalid config", zap.Error(err))
			return
		}
		if logger.SetLevel(next.Log.Level) {
			logger.Info("[nacos] log level changed", zap.String("level", next.Log.Level))
		}
	})
	if err != nil {
		logger.Warn("[nacos] watch failed, remote changes need a restart", zap.Error(err))
	}
	return cfg, nil
}
