// Package timeweather provides the two built-in tools this server ships:
// time_tool reports the current time in a requested timezone and weather_tool
// fetches current conditions from weatherapi.com. Both follow the tool
// contract: operational failures (bad timezone, missing API key, upstream
// errors) are reported as text content, not as protocol errors.
package timeweather
