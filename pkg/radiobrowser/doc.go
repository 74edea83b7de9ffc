// Package radiobrowser is a client for the radio-browser.info station
// directory, a community database of internet radio streams served by a set
// of redundant mirrors.
//
//   - Search walks a fixed mirror list in order and returns the first
//     successfully parsed result, so a single dead mirror never fails a query
//   - Wire records carry nullable fields; every Station returned here has all
//     fields populated, defaulting to the empty string
//   - CountClick reports a station play back to the directory, which feeds
//     its popularity ranking
package radiobrowser
