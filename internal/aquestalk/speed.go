package aquestalk

// 发话速度 [%]，引擎接受 50-300。
const (
	MinSpeed     = 50
	MaxSpeed     = 300
	DefaultSpeed = 100
)

// ClampSpeed 将速度限制在 [MinSpeed, MaxSpeed]，第二个返回值表示是否发生了调整。
func ClampSpeed(speed int) (int, bool) {
	switch {
	case speed < MinSpeed:
		return MinSpeed, true
	case speed > MaxSpeed:
		return MaxSpeed, true
	default:
		return speed, false
	}
}
