package domain

import (
	"github.com/yungbote/activitylog-backend/internal/domain/activity"
	"github.com/yungbote/activitylog-backend/internal/domain/user"
)

type ActivityEvent = activity.ActivityEvent
type EventInput = activity.EventInput
type Dimension = activity.Dimension

const (
	DimEventType = activity.DimEventType
	DimSession   = activity.DimSession
	DimDevice    = activity.DimDevice
	DimUser      = activity.DimUser
)

type User = user.User
