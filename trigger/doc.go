// Package trigger implements the part of a context menu that decides when to
// open it.
//
// A Trigger is attached to an element and fed that element's pointer events.
// It opens the menu identified by its configuration on a secondary click, or
// when a touch is held in place for Config.HoldToDisplay, by asking a Menu to
// hide whatever is open and then show a ShowRequest. The request carries the
// anchor position, whether it came from touch, and a payload produced by the
// configured Collector.
//
// Collectors may return their payload immediately or as a Future. Immediate
// payloads are shown within the handler that activated the trigger; deferred
// ones are shown on the loop once the future resolves, and never if it
// doesn't.
//
// After a touch-and-hold opened a menu, mousedown events on the element are
// swallowed until the next touch begins, since platforms replay them for
// touches and they would otherwise close the menu again.
package trigger
