package notifier

// Notifier 实时通知出口，所有发送都是非阻塞尽力而为。
type Notifier interface {
	SendToUser(userID uint, event Event)
	SendToTransporter(transporterID uint, event Event)
	BroadcastTransporters(event Event)
}

// Fanout 将同一条消息分发到多个通知出口
type Fanout []Notifier

// SendToUser 逐个出口发送
func (f Fanout) SendToUser(userID uint, event Event) {
	for _, n := range f {
		if n != nil {
			n.SendToUser(userID, event)
		}
	}
}

// SendToTransporter 逐个出口发送
func (f Fanout) SendToTransporter(transporterID uint, event Event) {
	for _, n := range f {
		if n != nil {
			n.SendToTransporter(transporterID, event)
		}
	}
}

// BroadcastTransporters 逐个出口广播
func (f Fanout) BroadcastTransporters(event Event) {
	for _, n := range f {
		if n != nil {
			n.BroadcastTransporters(event)
		}
	}
}
