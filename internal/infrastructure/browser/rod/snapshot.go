package rod

// snapshotScript stamps every element (shadow roots and same-origin frames
// included) with data-imgx-id and returns the dom.Snapshot JSON. Ids survive
// later snapshots of the same page and new elements continue the sequence, so
// an older document never maps an id to a different element.
const snapshotScript = `async (awaitDecode, decodeBudget) => {
	const props = [
		'display', 'visibility', 'opacity', 'z-index', 'position', 'pointer-events',
		'background-image', 'background', 'mask-image', '-webkit-mask-image',
		'content', 'list-style-image', 'border-image-source',
	];
	const errName = (e) => String((e && (e.name || e.message)) || e);
	let seq = window.__imgxSeq || 0;

	const pick = (cs) => {
		const out = {};
		for (const p of props) {
			const v = cs.getPropertyValue(p);
			if (v) out[p] = v;
		}
		return out;
	};

	const snap = async (doc, win) => {
		if (awaitDecode) {
			const pending = [...doc.images].filter((img) => !img.complete);
			await Promise.race([
				Promise.allSettled(pending.map((img) => img.decode())),
				new Promise((resolve) => setTimeout(resolve, decodeBudget)),
			]);
		}

		const elements = {};
		const shadowRoots = [];
		const frameEls = [];

		const visit = (root) => {
			for (const el of root.querySelectorAll('*')) {
				let id = el.getAttribute('data-imgx-id');
				if (!id) {
					id = String(++seq);
					el.setAttribute('data-imgx-id', id);
				}

				const layout = {};
				try {
					const r = el.getBoundingClientRect();
					layout.rect = { x: r.x, y: r.y, width: r.width, height: r.height };
					layout.styles = {
						'': pick(win.getComputedStyle(el)),
						'::before': pick(win.getComputedStyle(el, '::before')),
						'::after': pick(win.getComputedStyle(el, '::after')),
					};
				} catch (e) {
					layout.styleError = errName(e);
				}

				const tag = el.tagName.toLowerCase();
				if (tag === 'img') {
					layout.naturalWidth = el.naturalWidth;
					layout.naturalHeight = el.naturalHeight;
					layout.currentSrc = el.currentSrc || '';
				} else if (tag === 'video') {
					layout.naturalWidth = el.videoWidth;
					layout.naturalHeight = el.videoHeight;
				} else if (tag === 'canvas') {
					try {
						layout.canvasData = el.toDataURL('image/png');
					} catch (e) {
						layout.canvasError = errName(e);
					}
				} else if (tag === 'iframe' || tag === 'frame') {
					frameEls.push(el);
				}
				elements[id] = layout;

				if (el.shadowRoot) {
					shadowRoots.push(el.shadowRoot);
					visit(el.shadowRoot);
				}
			}
		};
		visit(doc);

		const sheets = [];
		for (const s of doc.styleSheets) {
			try {
				sheets.push({ href: s.href || '', rules: [...s.cssRules].map((r) => r.cssText) });
			} catch (e) {
				sheets.push({ href: s.href || '', rules: [], error: errName(e) });
			}
		}

		const frames = {};
		for (const f of frameEls) {
			const id = f.getAttribute('data-imgx-id');
			try {
				const fd = f.contentDocument;
				if (!fd || !fd.documentElement) throw new Error('cross-origin frame');
				frames[id] = { snapshot: await snap(fd, f.contentWindow) };
			} catch (e) {
				frames[id] = { error: errName(e) };
			}
		}

		const root = doc.documentElement;
		let html = root.outerHTML;
		if (shadowRoots.length && typeof root.getHTML === 'function') {
			const open = html.slice(0, html.indexOf('>') + 1);
			html = open + root.getHTML({ serializableShadowRoots: true, shadowRoots }) + '</html>';
		}

		return {
			url: doc.location ? doc.location.href : doc.URL,
			viewport: {
				width: win.innerWidth,
				height: win.innerHeight,
				scrollX: win.scrollX,
				scrollY: win.scrollY,
				dpr: win.devicePixelRatio,
			},
			html,
			elements,
			sheets,
			frames,
		};
	};

	const result = await snap(document, window);
	window.__imgxSeq = seq;
	return JSON.stringify(result);
}`

// pointScript lists the snapshot ids under a viewport point, frontmost first.
const pointScript = `(x, y) => JSON.stringify(
	document.elementsFromPoint(x, y)
		.map((el) => el.getAttribute('data-imgx-id'))
		.filter(Boolean)
)`
