package static

import (
	"mime"
	"path/filepath"
	"strings"
)

const DefaultContentType = "application/octet-stream"

// pinnedTypes override whatever the host's mime.types files say, so the
// Content-type of a common file does not change from machine to machine.
var pinnedTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".json":  "application/json",
	".txt":   "text/plain",
	".md":    "text/markdown",
	".csv":   "text/csv",
	".xml":   "text/xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".avif":  "image/avif",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".pdf":   "application/pdf",
	".wasm":  "application/wasm",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
}

func init() {
	for ext, typ := range pinnedTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(err)
		}
	}
}

// ContentType guesses a media type from the extension of the last
// "/"-separated segment of name. Parameters such as charset are dropped.
func ContentType(name string) string {
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}

	ext := filepath.Ext(name)
	if ext == "" {
		return DefaultContentType
	}

	t := mime.TypeByExtension(ext)
	if t == "" {
		return DefaultContentType
	}

	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mediaType
}
