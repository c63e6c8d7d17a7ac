package conversation

import "github.com/nwatkins/health-adviser/internal/model/chat"

// Subscribe returns an ordered feed of messages as they are appended, plus a
// cancel func releasing the subscription. Slow consumers drop events rather
// than blocking the session.
func (s *Service) Subscribe() (<-chan chat.Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan chat.Message, 32)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publishLocked fans a freshly appended message out to subscribers. Callers
// hold s.mu.
func (s *Service) publishLocked(msg chat.Message) {
	for _, sub := range s.subs {
		select {
		case sub <- msg:
		default:
			s.logger.Warn("dropping message event, subscriber too slow", "message_id", msg.ID)
		}
	}
}
