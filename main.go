package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TaskTrial/realtime-server/helpers"
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/factory"
	"github.com/TaskTrial/realtime-server/pkg/logging"
	"github.com/TaskTrial/realtime-server/pkg/routers"
	"github.com/TaskTrial/realtime-server/version"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	cli.VersionPrinter = func(c *cli.Command) {
		fmt.Printf("%s\n", c.Version)
	}

	app := &cli.Command{
		Name:        "tasktrial-realtime-server",
		Usage:       "Realtime chat & video session server for TaskTrial",
		Description: "without option will start server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Configuration file",
				DefaultText: "config.yaml",
				Value:       "config.yaml",
			},
		},
		Action:  startServer,
		Version: version.Version,
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		logrus.Fatalln(err)
	}
}

func startServer(ctx context.Context, c *cli.Command) error {
	appCnf, err := helpers.ReadYamlConfigFile(c.String("config"))
	if err != nil {
		panic(err)
	}
	// set this config for global usage
	if _, err = config.New(appCnf); err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(&appCnf.LogSettings)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to setup logger")
	}
	appCnf.Logger = logger

	// now prepare our server
	if err = helpers.PrepareServer(ctx, config.GetConfig()); err != nil {
		logger.Fatalln(err)
	}

	app := factory.NewApplication(ctx, appCnf)

	// boot up background services
	app.Boot()

	// defer close connections
	defer helpers.HandleCloseConnections()
	defer app.Shutdown()

	rt := routers.New(app)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.Infoln("exit requested, shutting down", "signal", sig)
		_ = rt.Shutdown()
	}()

	if err = rt.Listen(fmt.Sprintf(":%d", appCnf.Client.Port)); err != nil {
		logger.Fatalln(err)
	}
	return nil
}
