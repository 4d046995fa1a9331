package models

import (
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type MembershipModel struct {
	app    *config.AppConfig
	ds     Datastore
	b      Broadcaster
	logger *logrus.Entry
}

func NewMembershipModel(app *config.AppConfig, ds Datastore, b Broadcaster) *MembershipModel {
	if app == nil {
		app = config.GetConfig()
	}
	return &MembershipModel{
		app:    app,
		ds:     ds,
		b:      b,
		logger: app.Logger.WithField("model", "membership"),
	}
}

// BootstrapRooms subscribes a freshly authenticated connection to its
// personal room and to one room per org/team/project relationship.
// Lookups run in parallel; failures are logged, not fatal, so partial
// membership never blocks the connection.
func (m *MembershipModel) BootstrapRooms(connId string, user *dbmodels.User) {
	m.b.JoinRoom(connId, wsservice.UserRoom(user.ID))

	if user.OrganizationID != "" {
		m.b.JoinRoom(connId, wsservice.OrgRoom(user.OrganizationID))
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		teamIds, err := m.ds.GetUserTeamIDs(user.ID)
		if err != nil {
			m.logger.WithError(err).WithField("userId", user.ID).
				Errorln("failed to load team memberships")
			return nil
		}
		for _, id := range teamIds {
			m.b.JoinRoom(connId, wsservice.TeamRoom(id))
		}
		return nil
	})
	g.Go(func() error {
		projectIds, err := m.ds.GetUserProjectIDs(user.ID)
		if err != nil {
			m.logger.WithError(err).WithField("userId", user.ID).
				Errorln("failed to load project memberships")
			return nil
		}
		for _, id := range projectIds {
			m.b.JoinRoom(connId, wsservice.ProjectRoom(id))
		}
		return nil
	})
	_ = g.Wait()
}
