package domain

import (
	"github.com/yungbote/calaisgraph/internal/domain/semantic"
)

type EntityType = semantic.EntityType
type Entity = semantic.Entity
type EventFactType = semantic.EventFactType
type EventFact = semantic.EventFact
type SocialTag = semantic.SocialTag
type Topic = semantic.Topic

type Document = semantic.Document

type EntityDetection = semantic.EntityDetection
type EventDetection = semantic.EventDetection
type SocialTagDetection = semantic.SocialTagDetection
type TopicDetection = semantic.TopicDetection

func PtrFloat(v float64) *float64 { return &v }
