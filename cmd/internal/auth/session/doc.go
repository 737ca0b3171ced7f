// Package session implements bearer-token sessions.
//
// A session row binds one access/refresh token pair to a principal. Login
// inserts a row, Refresh rotates both tokens in place on the same row, and
// Logout deletes every row holding the presented refresh token. Expiry is
// checked lazily: the access token expiry is mirrored on the row and compared
// at authentication time, the refresh token expiry is read from the token
// itself at refresh time.
//
// Flows return *Error values carrying a Kind; mapping kinds to transport
// status codes is the caller's job.
package session
