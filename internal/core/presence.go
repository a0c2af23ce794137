package core

// pushPresence sends the full participant list to every member of the room.
// Lists replace rather than patch, so a client that missed one update is
// corrected by the next.
func pushPresence(room *Room) {
	room.broadcast(&Event{
		Kind:  EventUsersUpdate,
		Room:  room.ID,
		Users: room.participantList(),
	}, "")
}
