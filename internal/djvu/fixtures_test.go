package djvu

const (
	metaXML = `<?xml version="1.0" ?>
<!DOCTYPE DjVuXML PUBLIC "-//W3C//DTD DjVuXML 1.1//EN" "pubtext/DjVuXML-s.dtd">
<DjVuXML>
<HEAD></HEAD>
<BODY>
<OBJECT height="3300" width="2550"><PARAM name="DPI" value="300"/><PARAM name="GAMMA" value="2.2"/></OBJECT>
<OBJECT height="3000" width="2000"><PARAM name="DPI" value="300"/><PARAM name="GAMMA" value="2.2"/></OBJECT>
<OBJECT height="1650" width="1275"><PARAM name="DPI" value="150"/><PARAM name="GAMMA" value="2.2"/></OBJECT>
</BODY>
</DjVuXML>
`

	combinedXML = `<mw-djvu><DjVuXML>
<HEAD></HEAD>
<BODY>
<OBJECT height="3300" width="2550"></OBJECT>
<OBJECT height="3000" width="2000"></OBJECT>
</BODY>
</DjVuXML><DjVuTxt>
<HEAD></HEAD>
<BODY>
<PAGE value="First page text" />
<PAGE value="Second &amp; last" />
</BODY>
</DjVuTxt>
</mw-djvu>`

	// Page 2 has an OBJECT without size attributes.
	sizelessObjectXML = `<DjVuXML>
<HEAD></HEAD>
<BODY>
<OBJECT height="100" width="50"></OBJECT>
<OBJECT><PARAM name="DPI" value="300"/></OBJECT>
<OBJECT height="300" width="150"></OBJECT>
</BODY>
</DjVuXML>`

	// Three OBJECTs, but one sits outside BODY, so the third page has no
	// OBJECT under BODY.
	strayObjectXML = `<DjVuXML>
<HEAD><OBJECT height="10" width="10"></OBJECT></HEAD>
<BODY>
<OBJECT height="100" width="50"></OBJECT>
<OBJECT height="300" width="150"></OBJECT>
</BODY>
</DjVuXML>`
)
