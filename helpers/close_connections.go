package helpers

import (
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/sirupsen/logrus"
)

func HandleCloseConnections() {
	appCnf := config.GetConfig()
	if appCnf == nil {
		return
	}

	// handle to close DB connection
	if appCnf.DB != nil {
		if db, err := appCnf.DB.DB(); err == nil {
			_ = db.Close()
		}
	}

	// close redis
	if appCnf.RDS != nil {
		_ = appCnf.RDS.Close()
	}

	// close logger
	logrus.Exit(0)
}
