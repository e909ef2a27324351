// Package selection models which conversation, real or draft, is active.
package selection
