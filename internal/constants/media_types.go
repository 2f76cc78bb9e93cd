package constants

// Default allowed file extensions per media kind. These mirror what the
// messaging provider accepts for each attachment type.
var (
	DefaultImageTypes    = []string{"jpg", "jpeg", "png", "webp"}
	DefaultAudioTypes    = []string{"mp3", "ogg", "aac", "amr", "m4a"}
	DefaultVideoTypes    = []string{"mp4", "3gp"}
	DefaultDocumentTypes = []string{"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "csv"}
)

// ExtensionToMimeType maps file extensions to the MIME type sent to the
// provider on upload.
var ExtensionToMimeType = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",

	"mp3": "audio/mpeg",
	"ogg": "audio/ogg",
	"aac": "audio/aac",
	"amr": "audio/amr",
	"m4a": "audio/mp4",

	"mp4": "video/mp4",
	"3gp": "video/3gpp",

	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"txt":  "text/plain",
	"csv":  "text/csv",
}

// MimeTypeToExtension derives a file extension for inbound attachments
// whose provider metadata carries only a MIME type.
var MimeTypeToExtension = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",

	"audio/mpeg": "mp3",
	"audio/ogg":  "ogg",
	"audio/aac":  "aac",
	"audio/amr":  "amr",
	"audio/mp4":  "m4a",

	"video/mp4":  "mp4",
	"video/3gpp": "3gp",

	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/vnd.ms-excel": "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"text/plain": "txt",
	"text/csv":   "csv",
}

// DefaultMimeType is the fallback for unknown extensions.
const DefaultMimeType = "application/octet-stream"

// DefaultBinaryExtension is used when neither the provider metadata nor
// the MIME type yields a usable extension.
const DefaultBinaryExtension = "bin"
