package rod

const (
	GalleryHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Gallery</title>
	<style>.hero { background-image: url(/img/hero.jpg); width: 300px; height: 200px; }</style>
</head>
<body style="margin:0">
	<div class="hero" id="hero"></div>
	<img id="photo" src="/img/photo.png" width="200" height="100">
	<canvas id="paint" width="8" height="8"></canvas>
	<div id="host"></div>
	<script>
		const ctx = document.getElementById('paint').getContext('2d');
		ctx.fillStyle = 'red';
		ctx.fillRect(0, 0, 8, 8);
		const root = document.getElementById('host').attachShadow({ mode: 'open' });
		root.innerHTML = '<img id="shadowed" src="/img/shadow.png">';
	</script>
</body>
</html>`

	FrameHTML = `<!DOCTYPE html>
<html>
<body>
	<iframe id="inner" src="/inner"></iframe>
</body>
</html>`

	InnerHTML = `<!DOCTYPE html>
<html>
<body><img id="framed" src="/img/framed.png"></body>
</html>`

	OverlayHTML = `<!DOCTYPE html>
<html>
<body style="margin:0">
	<img id="photo" src="/img/photo.png" style="position:absolute; left:0; top:0; width:400px; height:300px">
	<div id="shade" style="position:absolute; left:0; top:0; width:400px; height:300px; z-index:10"></div>
</body>
</html>`
)
