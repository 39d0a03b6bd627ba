package template

import _ "embed"

//go:embed assets/slides.css
var slidesStyle string

const slidesModeScript = `<script>
document.documentElement.classList.add("slides-mode");
</script>
`

// SlidesExtraHead returns the head fragment for slide pages: the mode class
// hook plus the deck stylesheet.
func SlidesExtraHead() string {
	return slidesModeScript + "<style>\n" + slidesStyle + "</style>\n"
}

// SlidesExtraBody returns the keyboard and hash navigation script for slide
// pages.
func SlidesExtraBody() string {
	return slidesScript
}

const slidesScript = `<script>
(function () {
  if (window.__rendarSlides) {
    return;
  }
  window.__rendarSlides = true;

  var slides = Array.prototype.slice.call(document.querySelectorAll(".slide"));
  if (!slides.length) {
    return;
  }
  var progress = document.querySelector(".slides-progress");
  var current = 0;

  function clamp(index) {
    if (index < 0) {
      return 0;
    }
    if (index >= slides.length) {
      return slides.length - 1;
    }
    return index;
  }

  function parseHash() {
    var match = window.location.hash.match(/slide-(\d+)/);
    if (!match) {
      return 0;
    }
    var value = parseInt(match[1], 10);
    if (Number.isNaN(value)) {
      return 0;
    }
    return value - 1;
  }

  function updateProgress(index) {
    if (!progress) {
      return;
    }
    progress.textContent = (index + 1) + " / " + slides.length;
  }

  function show(index, updateHash) {
    var next = clamp(index);
    slides[current].classList.remove("is-active");
    slides[current].setAttribute("aria-hidden", "true");
    slides[next].classList.add("is-active");
    slides[next].removeAttribute("aria-hidden");
    current = next;
    updateProgress(current);
    if (updateHash) {
      var hash = "#slide-" + (current + 1);
      if (window.location.hash !== hash) {
        window.location.hash = hash;
      }
    }
  }

  function nextSlide() {
    show(current + 1, true);
  }

  function previousSlide() {
    show(current - 1, true);
  }

  function shouldIgnoreEvent(event) {
    var target = event.target;
    if (!target) {
      return false;
    }
    var tag = target.tagName ? target.tagName.toLowerCase() : "";
    return tag === "input" || tag === "textarea" || target.isContentEditable;
  }

  document.addEventListener("keydown", function (event) {
    if (event.defaultPrevented || shouldIgnoreEvent(event)) {
      return;
    }
    if (event.key === "ArrowRight" || event.key === " " || event.key === "Spacebar") {
      event.preventDefault();
      nextSlide();
    } else if (event.key === "ArrowLeft") {
      event.preventDefault();
      previousSlide();
    }
  });

  window.addEventListener("hashchange", function () {
    show(parseHash(), false);
  });

  show(parseHash(), false);
})();
</script>
`
