// Package djvu parses the XML metadata that describes a DjVu document and
// derives page geometry and page text from it.
//
// Metadata arrives as a blob produced by the external djvudump and djvutxt
// tools. A blob is either legacy raw XML or a JSON storage wrapper:
//
//	{"xml": "<mw-djvu>...</mw-djvu>"}
//	{"error": "djvudump failed"}
//
// [Parse] turns a blob into a [Document] holding two sub-trees:
//   - Meta: the DjVuXML geometry tree (one OBJECT per page)
//   - Text: the DjVuTxt OCR tree (one PAGE per page)
//
// [ExtractDimensions] derives a [DimensionInfo] from the geometry tree and
// [PageText] reads a page's text from the OCR tree. Nothing in this package
// performs I/O except [ReadImageSize], which reads the IFF header of a file.
package djvu
