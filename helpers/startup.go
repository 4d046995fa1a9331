package helpers

import (
	"context"
	"os"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/factory"
	"gopkg.in/yaml.v3"
)

func ReadYamlConfigFile(filename string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	if err = yaml.Unmarshal(yamlFile, &appCnf); err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	appCnf.RootWorkingDir = wd

	return appCnf, nil
}

// PrepareServer establishes the database and Redis connections on the
// config before the application is wired.
func PrepareServer(ctx context.Context, appCnf *config.AppConfig) error {
	if err := factory.NewDatabaseConnection(ctx, appCnf); err != nil {
		return err
	}

	return factory.NewRedisConnection(ctx, appCnf)
}
