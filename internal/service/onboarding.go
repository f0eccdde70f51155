package service

import "sync"

// OnboardingService remembers which chats already got the welcome message.
// State lives in memory only and is lost on restart.
type OnboardingService struct {
	mu      sync.Mutex
	greeted map[int64]bool
}

func NewOnboardingService() *OnboardingService {
	return &OnboardingService{greeted: map[int64]bool{}}
}

// Greet reports whether this is the first greeting for the chat and marks it greeted.
func (s *OnboardingService) Greet(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.greeted[chatID] {
		return false
	}
	s.greeted[chatID] = true
	return true
}
