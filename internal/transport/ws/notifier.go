package ws

import (
	"github.com/vedran77/taskmanager/internal/domain"
)

// HubNotifier implements service.TaskNotifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) TaskCreated(task *domain.Task) {
	n.publish(EventTypeTaskCreated, task)
}

func (n *HubNotifier) TaskUpdated(task *domain.Task) {
	n.publish(EventTypeTaskUpdated, task)
}

func (n *HubNotifier) TaskDeleted(task *domain.Task) {
	n.publish(EventTypeTaskDeleted, task)
}

func (n *HubNotifier) publish(eventType string, task *domain.Task) {
	evt, err := NewEvent(eventType, TaskPayload{Task: *task})
	if err != nil {
		return
	}
	n.hub.SendToUser(task.OwnerID, evt)
}
