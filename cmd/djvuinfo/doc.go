// Command djvuinfo prints the structure of local DjVu documents.
//
//	djvuinfo pages book.djvu
//	djvuinfo page book.djvu 3 --width 800
//	djvuinfo text book.djvu 3
//	djvuinfo size book.djvu
//	djvuinfo xml book.djvu
//
// djvudump and djvutxt are located on PATH unless --djvudump and --djvutxt
// (or DJVUDUMP_PATH and DJVUTXT_PATH) name them. The size subcommand reads
// the file header directly and needs neither tool.
package main
