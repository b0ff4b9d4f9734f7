// Package playlist loads IPTV playlists in the extended M3U format.
//
// A playlist is read from an http(s) URL or a local file, decoded to UTF-8
// and parsed into untested model.Entry values, deduplicated by link.
//
//	#EXTM3U
//	#EXTINF:-1 tvg-id="NHK.jp" group-title="News",NHK World
//	https://nhkwlive.example.com/hls/live.m3u8
package playlist
