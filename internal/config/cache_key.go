package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizPayloadKey returns the cache key for a published quiz's student payload.
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// QuizAnswerKey returns the cache key for a quiz's answer key hash.
func (r *CacheKeyStruct) QuizAnswerKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:key", quizID)
}

// QuizPointsKey returns the cache key for a quiz's per-question points hash.
func (r *CacheKeyStruct) QuizPointsKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:points", quizID)
}

// AttemptDeadlineKey returns the cache key for an attempt's submission deadline.
func (r *CacheKeyStruct) AttemptDeadlineKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:deadline", attemptID)
}

var CacheKey = NewCacheKeyStruct()
