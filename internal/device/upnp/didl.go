package upnp

import (
	"bytes"
	"html"
	"text/template"
)

// didlTemplate is the DIDL-Lite metadata envelope spec §4.E-UPnP step 1
// describes: title is ASCII-only, URL and title are XML-escaped.
var didlTemplate = template.Must(template.New("didl").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">
  <item id="0" parentID="-1" restricted="1">
    <dc:title>{{.Title}}</dc:title>
    <upnp:class>object.item.videoItem</upnp:class>
    <res protocolInfo="http-get:*:video/mp4:DLNA.ORG_PN=AVC_MP4_BL_L3L_SD_AAC;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS={{.Flags}}">{{.URL}}</res>
  </item>
</DIDL-Lite>`))

// dlnaFlags is the fixed flag word spec §4.E-UPnP names.
const dlnaFlags = "21700000000000000000000000000000"

type didlData struct {
	Title string
	URL   string
	Flags string
}

// asciiOnly filters s to bytes < 128, preserving order (spec §8 law
// "ascii_only filters to bytes < 128 preserving order").
func asciiOnly(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 128 {
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}

// buildDIDL renders the metadata document play() passes as
// CurrentURIMetaData.
func buildDIDL(title, url string) (string, error) {
	data := didlData{
		Title: html.EscapeString(asciiOnly(title)),
		URL:   html.EscapeString(url),
		Flags: dlnaFlags,
	}
	var buf bytes.Buffer
	if err := didlTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
