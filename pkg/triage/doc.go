// Package triage classifies raw failures, turns them into user-presentable
// records, and drives a bounded retry loop from those classifications.
//
// The flow is: Classify -> UserMessage -> Processor.Process (ID, merged
// context, log entry, recorders) -> either shown to a user or consulted by
// Retry to decide on another attempt.
package triage
