package common

const (
	RedisStreamOrderIntent   = "engine.order.intent"
	RedisStreamPositionEvent = "engine.position.event"
)
