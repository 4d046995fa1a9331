package wsservice

import (
	"fmt"
	"strings"
)

type RoomDomain string

const (
	DomainChat    RoomDomain = "chat"
	DomainVideo   RoomDomain = "video"
	DomainOrg     RoomDomain = "org"
	DomainTeam    RoomDomain = "team"
	DomainProject RoomDomain = "project"
	DomainUser    RoomDomain = "user"
)

// RoomKey identifies a broadcast group. Using a typed key instead of a
// bare "chat:<id>" string keeps the domain set closed.
type RoomKey struct {
	Domain RoomDomain `json:"domain"`
	ID     string     `json:"id"`
}

func (k RoomKey) String() string {
	return string(k.Domain) + ":" + k.ID
}

func (k RoomKey) Valid() bool {
	switch k.Domain {
	case DomainChat, DomainVideo, DomainOrg, DomainTeam, DomainProject, DomainUser:
		return k.ID != ""
	}
	return false
}

func ParseRoomKey(s string) (RoomKey, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return RoomKey{}, fmt.Errorf("malformed room key: %s", s)
	}

	k := RoomKey{Domain: RoomDomain(parts[0]), ID: parts[1]}
	if !k.Valid() {
		return RoomKey{}, fmt.Errorf("unknown room domain: %s", parts[0])
	}
	return k, nil
}

func ChatRoom(id string) RoomKey    { return RoomKey{Domain: DomainChat, ID: id} }
func VideoRoom(id string) RoomKey   { return RoomKey{Domain: DomainVideo, ID: id} }
func OrgRoom(id string) RoomKey     { return RoomKey{Domain: DomainOrg, ID: id} }
func TeamRoom(id string) RoomKey    { return RoomKey{Domain: DomainTeam, ID: id} }
func ProjectRoom(id string) RoomKey { return RoomKey{Domain: DomainProject, ID: id} }
func UserRoom(id string) RoomKey    { return RoomKey{Domain: DomainUser, ID: id} }
