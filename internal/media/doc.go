// Package media serves page-level information about DjVu files.
//
// An [Extractor] runs djvudump and djvutxt to build a file's metadata blob.
// A [Handler] stores that blob once per content hash, parses it on demand
// and answers page count, page size and page text queries, using the
// two-tier dimension cache from package cache for geometry.
package media
