/*
package gossip connects clients waiting on a tournament with the things that
change it: our own settlements, and notifications from the database about
everyone else's.

The name is imperfect, but see the section "Promotion" on https://en.wikipedia.org/wiki/Hadacol.
*/

package gossip
