// Package enrollment tracks the courses a user is enrolled in and computes
// lesson progress.
//
// The progress helpers are pure functions over a Curriculum and a Progress
// record. Completion is counted from the three completed-id lists, so a
// course is done once the lists hold at least as many ids as it has lessons.
package enrollment
